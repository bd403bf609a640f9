// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render2d

//go:generate glslangValidator -V shaders/quad.vert -o shaders/quad.vert.spv
//go:generate glslangValidator -V shaders/quad.frag -o shaders/quad.frag.spv

import (
	"sort"
	"strings"

	"github.com/devblok/frameloop/gfx/vkr"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const shaderSuffix = ".spv"

// Shaders holds the compiled quad shaders.
var Shaders = packr.NewBox("./shaders")

// ShaderBox is a directory of compiled shaders.
type ShaderBox interface {
	List() []string
	Find(name string) ([]byte, error)
}

// shaderStage reads the stage from names of the form name.stage.spv.
func shaderStage(file string) (vk.ShaderStageFlagBits, bool) {
	if !strings.HasSuffix(file, shaderSuffix) {
		return 0, false
	}
	nodes := strings.Split(strings.TrimSuffix(file, shaderSuffix), ".")
	if len(nodes) != 2 {
		return 0, false
	}
	switch nodes[1] {
	case "vert":
		return vk.ShaderStageVertexBit, true
	case "frag":
		return vk.ShaderStageFragmentBit, true
	}
	return 0, false
}

// LoadShaders returns the vertex and fragment shader of the box.
func LoadShaders(box ShaderBox) ([]vkr.ShaderSource, error) {
	files := box.List()
	sort.Strings(files)

	var (
		sources []vkr.ShaderSource
		seen    = map[vk.ShaderStageFlagBits]string{}
	)
	for _, file := range files {
		stage, ok := shaderStage(file)
		if !ok {
			continue
		}
		if prev, ok := seen[stage]; ok {
			return nil, errors.Errorf("shaders %s and %s share a stage", prev, file)
		}
		code, err := box.Find(file)
		if err != nil {
			return nil, errors.Wrapf(err, "read shader %s", file)
		}
		seen[stage] = file
		sources = append(sources, vkr.ShaderSource{Stage: stage, Code: code})
	}
	if seen[vk.ShaderStageVertexBit] == "" || seen[vk.ShaderStageFragmentBit] == "" {
		return nil, errors.New("missing compiled vertex or fragment shader, run go generate ./render2d")
	}
	return sources, nil
}
