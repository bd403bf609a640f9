// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/devblok/frameloop/core"
	"github.com/devblok/frameloop/gfx/vkr"
	log "github.com/sirupsen/logrus"
)

var (
	validation = flag.Bool("validation", false, "Load Vulkan validation layers")
	indent     = flag.Bool("indent", false, "Indent the JSON output")
)

func main() {
	flag.Parse()

	instance, err := vkr.NewInstance(vkr.InstanceConfiguration{
		ApplicationName: "frameloopcli",
		Validation:      *validation,
	})
	if err != nil {
		log.WithError(err).Fatal("Creating instance")
	}
	defer instance.Release()

	devices, err := instance.AvailableDevices()
	if err != nil {
		log.WithError(err).Fatal("Enumerating devices")
	}

	info := core.DescribeDevices(devices)
	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(info, "", "  ")
	} else {
		bytes, err = json.Marshal(info)
	}
	if err != nil {
		log.WithError(err).Fatal("Encoding device info")
	}
	fmt.Printf("%s\n", bytes)
}
