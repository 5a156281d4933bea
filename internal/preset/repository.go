package preset

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"

	"tomgalvin.uk/tsclabel/internal/label"
)

const presetColumns = `id, uuid, name, created_at, template, width_mm, height_mm, font_height, qr_module_size, qty`

type Repository struct {
	Db *sql.DB
}

func (r *Repository) Close() error {
	return r.Db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(s scanner) (*Preset, error) {
	var p Preset
	var uuidString, templateName string
	if err := s.Scan(&p.Id, &uuidString, &p.Name, &p.CreatedAt, &templateName,
		&p.WidthMM, &p.HeightMM, &p.FontHeight, &p.QRModuleSize, &p.Qty); err != nil {
		return nil, err
	}
	u, err := uuid.Parse(uuidString)
	if err != nil {
		return nil, fmt.Errorf("Preset %q has a malformed uuid:\n%w", p.Name, err)
	}
	p.Uuid = u
	if p.Template, err = label.ParseTemplate(templateName); err != nil {
		return nil, fmt.Errorf("Preset %q has an unknown template:\n%w", p.Name, err)
	}
	return &p, nil
}

func (r *Repository) readOne(query string, arg any) (*Preset, error) {
	p, err := scanPreset(r.Db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		} else {
			return nil, fmt.Errorf("Failed to read preset:\n%w", err)
		}
	}
	return p, nil
}

// Get returns nil without an error when no preset has the uuid.
func (r *Repository) Get(u uuid.UUID) (*Preset, error) {
	return r.readOne(`SELECT `+presetColumns+` FROM preset WHERE uuid = ?`, u.String())
}

// GetByName returns nil without an error when no preset has the name.
func (r *Repository) GetByName(name string) (*Preset, error) {
	return r.readOne(`SELECT `+presetColumns+` FROM preset WHERE name = ?`, name)
}

func (r *Repository) List() ([]Preset, error) {
	rows, err := r.Db.Query(`SELECT ` + presetColumns + ` FROM preset ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("Query execution failed:\n%w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("Row scanning failed:\n%w", err)
		}
		presets = append(presets, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Error iterating rows:\n%w", err)
	}

	return presets, nil
}

// Create inserts p and fills in its Id. A duplicate name is a validation error.
func (r *Repository) Create(tx *sql.Tx, p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := tx.QueryRow(`
		INSERT INTO preset(uuid, name, created_at, template, width_mm, height_mm, font_height, qr_module_size, qty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.Uuid.String(), p.Name, p.CreatedAt, p.Template.String(),
		p.WidthMM, p.HeightMM, p.FontHeight, p.QRModuleSize, p.Qty)
	if err := row.Scan(&p.Id); err != nil {
		if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) {
			return label.ValidationError("preset", "a preset named %q already exists", p.Name)
		}
		return fmt.Errorf("Failed to insert into preset:\n%w", err)
	}
	return nil
}

// Delete removes the preset with the given name and reports whether one existed.
func (r *Repository) Delete(tx *sql.Tx, name string) (bool, error) {
	res, err := tx.Exec(`DELETE FROM preset WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("Couldn't delete preset %q:\n%w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Couldn't count deleted presets:\n%w", err)
	}
	return n > 0, nil
}

// Run operations in a transaction, committing afterward, or rolling back if the
// passed function returns an error
func (r *Repository) Transact(f func(*sql.Tx) error) error {
	tx, err := r.Db.Begin()
	if err != nil {
		return err
	}

	err = f(tx)
	if err != nil {
		err2 := tx.Rollback()
		if err2 != nil {
			return fmt.Errorf("Failed to roll back transaction: %w\n\nAfter handling: %v", err2, err)
		}
		return err
	} else {
		err2 := tx.Commit()
		if err2 != nil {
			return fmt.Errorf("Failed to commit transaction:\n%w", err2)
		}
		return nil
	}
}
