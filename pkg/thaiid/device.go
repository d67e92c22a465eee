package thaiid

import "strings"

// DefaultReaderHints lists name fragments of readers known to work with the card.
var DefaultReaderHints = []string{"TRK2700RB", "IDENTIV", "SCR", "CCID"}

// SelectDevice picks the first device whose name contains any of hints (case-insensitive)
// and falls back to the first device.
func SelectDevice(devices []Device, hints []string) (Device, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	for _, dev := range devices {
		name := strings.ToUpper(dev.Name())
		for _, hint := range hints {
			if hint != "" && strings.Contains(name, strings.ToUpper(hint)) {
				return dev, nil
			}
		}
	}

	return devices[0], nil
}

// FindDevice returns the device named exactly name.
func FindDevice(devices []Device, name string) (Device, bool) {
	for _, dev := range devices {
		if dev.Name() == name {
			return dev, true
		}
	}
	return nil, false
}
