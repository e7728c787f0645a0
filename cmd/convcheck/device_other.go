// Copyright 2026 WinoFPGA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !linux

package main

import (
	"errors"

	"github.com/2270142596/WinoFPGA/cfu"
)

// openDevice returns the functional model; register mapping needs the
// Linux UIO interface.
func openDevice(path string, offset int64) (cfu.Device, func(), error) {
	if path != "" {
		return nil, nil, errors.New("memory-mapped device access requires linux")
	}
	return cfu.NewSim(), func() {}, nil
}
