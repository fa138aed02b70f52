//go:build !novoice

package cmd

import (
	"github.com/msto63/intake/internal/intake/audio"
	"github.com/msto63/intake/internal/intake/audio/mic"
)

func openMicrophone(cfg audio.DeviceConfig) (audio.Device, error) {
	return mic.New(cfg), nil
}

func listMicrophones() ([]audio.DeviceInfo, error) {
	return mic.ListInputDevices()
}
