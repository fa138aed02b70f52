//go:build novoice

package cmd

import (
	"errors"

	"github.com/msto63/intake/internal/intake/audio"
)

// Built with -tags novoice: no PortAudio, typed input only.
var errNoMicrophone = errors.New("built without microphone support (novoice)")

func openMicrophone(audio.DeviceConfig) (audio.Device, error) {
	return nil, errNoMicrophone
}

func listMicrophones() ([]audio.DeviceInfo, error) {
	return nil, errNoMicrophone
}
