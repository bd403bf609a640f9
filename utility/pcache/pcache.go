// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pcache stores pipeline cache blobs on disk between runs.
// A file is a fixed size header followed by the lz4 compressed blob.
// The header names the device that produced the blob, a blob
// from any other device or driver is reported stale. Files are
// memory mapped for reading.
package pcache

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a pipeline cache file")
	ErrStale      = errors.New("pipeline cache was written for another device")
)

// Format constants.
const (
	Version    uint32 = 1
	HeaderSize        = 4 + 4*4 + 8

	// MaxRatio bounds how much an lz4 body can expand.
	MaxRatio = 255
)

var magic = [4]byte{'F', 'L', 'P', 'C'}

// Device identifies the device and driver a cache belongs to.
type Device struct {
	VendorID      uint32
	DeviceID      uint32
	DriverVersion uint32
}

// Header is the on-disk file header.
type Header struct {
	Magic   [4]byte
	Version uint32
	Device  Device
	Size    uint64
}

// Load reads the blob stored at path for dev.
func Load(path string, dev Device) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open pipeline cache")
	}
	defer r.Close()

	if r.Len() < HeaderSize {
		return nil, ErrFileFormat
	}
	var header Header
	if err := binary.Read(io.NewSectionReader(r, 0, HeaderSize), binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	if header.Magic != magic {
		return nil, ErrFileFormat
	}
	if header.Version != Version || header.Device != dev {
		return nil, errors.Wrapf(ErrStale, "vendor %#x device %#x driver %d",
			header.Device.VendorID, header.Device.DeviceID, header.Device.DriverVersion)
	}

	compressed := uint64(r.Len() - HeaderSize)
	if header.Size > compressed*MaxRatio {
		return nil, errors.Wrapf(ErrFileFormat, "%d bytes can not hold %d uncompressed", compressed, header.Size)
	}
	body := io.NewSectionReader(r, HeaderSize, int64(compressed))
	data := make([]byte, header.Size)
	if _, err := io.ReadFull(lz4.NewReader(body), data); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	return data, nil
}

// Store writes data for dev to path, replacing any existing file only once
// the new one is complete.
func Store(path string, dev Device, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create cache directory")
	}
	f, err := ioutil.TempFile(dir, filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temporary cache file")
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	header := Header{
		Magic:   magic,
		Version: Version,
		Device:  dev,
		Size:    uint64(len(data)),
	}
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return errors.Wrap(err, "write header")
	}
	writer := lz4.NewWriter(f)
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, "compress cache")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "compress cache")
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
