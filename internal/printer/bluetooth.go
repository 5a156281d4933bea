// Bluetooth LE transport for portable TSPL printers. These printers expose a single
// write characteristic that accepts raw command bytes; there is no ready handshake.

package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tinygo.org/x/bluetooth"
)

// Service and characteristic used by most BLE label printers speaking TSPL
var (
	serviceUUID = bluetooth.New16BitUUID(0x18F0)
	writerUUID  = bluetooth.New16BitUUID(0x2AF1)
)

// defaultChunkSize stays under the smallest ATT MTU seen on these printers once the
// 3 byte header is taken off.
const defaultChunkSize = 20

type BluetoothConnection struct {
	adapter   *bluetooth.Adapter
	device    bluetooth.Device
	writer    bluetooth.DeviceCharacteristic
	address   bluetooth.Address
	chunkSize int
}

func newBluetoothConnection(chunkSize int) (*BluetoothConnection, error) {
	adapter := bluetooth.DefaultAdapter

	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("Couldn't enable Bluetooth:\n%w", err)
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &BluetoothConnection{adapter: adapter, chunkSize: chunkSize}, nil
}

// FromBluetoothName scans until a device advertising name is found or ctx is done,
// then connects to it.
func FromBluetoothName(ctx context.Context, name string, chunkSize int) (*BluetoothConnection, error) {
	p, err := newBluetoothConnection(chunkSize)
	if err != nil {
		return nil, err
	}

	devices := make(chan bluetooth.ScanResult, 1)

	go func() {
		err := p.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.LocalName() == name {
				slog.Info("Found device", "deviceName", result.LocalName(), "address", result.Address.String())
				select {
				case devices <- result:
				default:
				}
				adapter.StopScan()
			}
		})
		if err != nil {
			slog.Error("Failed to scan for devices", "err", err)
			close(devices)
		}
	}()

	select {
	case <-ctx.Done():
		p.adapter.StopScan()
		return nil, fmt.Errorf("Couldn't find %q:\n%w", name, ctx.Err())
	case dev, ok := <-devices:
		if !ok {
			return nil, errors.New("No devices found")
		}
		p.address = dev.Address
	}

	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *BluetoothConnection) connect() error {
	slog.Debug("Connecting to device...")
	device, err := p.adapter.Connect(p.address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("Couldn't connect to device:\n%w", err)
	}

	slog.Debug("Discovering service...")
	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err == nil && len(services) == 0 {
		err = errors.New("service 18f0 missing")
	}
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("Couldn't discover print service:\n%w", err)
	}

	slog.Debug("Discovering characteristics...")
	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{writerUUID})
	if err == nil && len(characteristics) == 0 {
		err = errors.New("characteristic 2af1 missing")
	}
	if err != nil {
		device.Disconnect()
		return fmt.Errorf("Couldn't discover write characteristic:\n%w", err)
	}

	p.device = device
	p.writer = characteristics[0]
	return nil
}

// Send writes the command and its line terminator in chunks no larger than the
// configured chunk size.
func (p *BluetoothConnection) Send(command string) error {
	data := []byte(command + lineEnding)
	for start := 0; start < len(data); start += p.chunkSize {
		end := min(start+p.chunkSize, len(data))
		if _, err := p.writer.WriteWithoutResponse(data[start:end]); err != nil {
			return fmt.Errorf("Couldn't write data:\n%w", err)
		}
	}
	slog.Debug("Wrote command to device", "size", len(data))
	return nil
}

func (p *BluetoothConnection) Close() error {
	return p.device.Disconnect()
}
