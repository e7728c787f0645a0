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

//go:build linux

package main

import "github.com/2270142596/WinoFPGA/cfu"

// openDevice maps the unit's register block when a device path is given,
// and falls back to the functional model otherwise.
func openDevice(path string, offset int64) (cfu.Device, func(), error) {
	if path == "" {
		return cfu.NewSim(), func() {}, nil
	}
	m, err := cfu.OpenMMIO(path, offset)
	if err != nil {
		return nil, nil, err
	}
	return m, func() { m.Close() }, nil
}
