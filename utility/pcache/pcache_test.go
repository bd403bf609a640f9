// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pcache_test

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/frameloop/utility/pcache"
	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
)

var testDevice = pcache.Device{VendorID: 0x10de, DeviceID: 0x1c82, DriverVersion: 1000}

func TestRoundTrip(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "cache", "pipelines.bin")
	data := bytes.Repeat([]byte("pipeline state "), 1000)

	c.Assert(pcache.Store(path, testDevice, data), qt.IsNil)
	loaded, err := pcache.Load(path, testDevice)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, data)

	info, err := os.Stat(path)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Size() < int64(len(data)), qt.IsTrue)

	entries, err := ioutil.ReadDir(filepath.Dir(path))
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
}

func TestOverwrite(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "pipelines.bin")
	c.Assert(pcache.Store(path, testDevice, []byte("first")), qt.IsNil)
	c.Assert(pcache.Store(path, testDevice, []byte("second")), qt.IsNil)

	loaded, err := pcache.Load(path, testDevice)
	c.Assert(err, qt.IsNil)
	c.Assert(string(loaded), qt.Equals, "second")
}

func TestDeviceMismatch(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "pipelines.bin")
	c.Assert(pcache.Store(path, testDevice, []byte{1, 2, 3}), qt.IsNil)

	updated := testDevice
	updated.DriverVersion++
	_, err := pcache.Load(path, updated)
	c.Assert(errors.Cause(err), qt.Equals, pcache.ErrStale)

	other := testDevice
	other.DeviceID = 0x2204
	_, err = pcache.Load(path, other)
	c.Assert(errors.Cause(err), qt.Equals, pcache.ErrStale)
}

func TestCorruptFile(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()

	short := filepath.Join(dir, "short.bin")
	c.Assert(ioutil.WriteFile(short, []byte("FLPC"), 0644), qt.IsNil)
	_, err := pcache.Load(short, testDevice)
	c.Assert(errors.Cause(err), qt.Equals, pcache.ErrFileFormat)

	foreign := filepath.Join(dir, "foreign.bin")
	c.Assert(ioutil.WriteFile(foreign, bytes.Repeat([]byte{0xAB}, 64), 0644), qt.IsNil)
	_, err = pcache.Load(foreign, testDevice)
	c.Assert(errors.Cause(err), qt.Equals, pcache.ErrFileFormat)

	truncated := filepath.Join(dir, "truncated.bin")
	c.Assert(pcache.Store(truncated, testDevice, bytes.Repeat([]byte("x"), 4096)), qt.IsNil)
	full, err := ioutil.ReadFile(truncated)
	c.Assert(err, qt.IsNil)
	c.Assert(ioutil.WriteFile(truncated, full[:pcache.HeaderSize+2], 0644), qt.IsNil)
	_, err = pcache.Load(truncated, testDevice)
	c.Assert(errors.Cause(err), qt.Equals, pcache.ErrFileFormat)
}

func TestMissingFile(t *testing.T) {
	c := qt.New(t)
	_, err := pcache.Load(filepath.Join(t.TempDir(), "absent.bin"), testDevice)
	c.Assert(os.IsNotExist(errors.Cause(err)), qt.IsTrue)
}

func TestImplausibleSize(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "pipelines.bin")
	c.Assert(pcache.Store(path, testDevice, bytes.Repeat([]byte("state"), 100)), qt.IsNil)

	full, err := ioutil.ReadFile(path)
	c.Assert(err, qt.IsNil)
	binary.LittleEndian.PutUint64(full[pcache.HeaderSize-8:pcache.HeaderSize], 1<<62)
	c.Assert(ioutil.WriteFile(path, full, 0644), qt.IsNil)

	_, err = pcache.Load(path, testDevice)
	c.Assert(errors.Cause(err), qt.Equals, pcache.ErrFileFormat)
}
