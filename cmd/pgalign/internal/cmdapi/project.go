// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package cmdapi

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const projectFileName = "pgalign.hcl"

type (
	// Project represents a pgalign.hcl project file.
	Project struct {
		Envs []*Env `hcl:"env,block"`
	}

	// Env is a named environment in the project file. Its values fill
	// flags the user did not set explicitly.
	Env struct {
		// Name for this environment.
		Name string `hcl:"name,label"`

		// URL of the database.
		URL string `hcl:"url,optional"`

		// Schema is the path of the desired schema file.
		Schema string `hcl:"schema,optional"`

		// LockTimeout bounds DDL lock waits when applying, e.g. "10s".
		LockTimeout string `hcl:"lock_timeout,optional"`
	}
)

// getenvFunc is exposed to the project file so credentials can stay
// out of it, e.g. url = getenv("DATABASE_URL").
var getenvFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

// LoadEnv reads the project file and returns the environment with the
// given name.
func LoadEnv(path, name string) (*Env, error) {
	f, diag := hclparse.NewParser().ParseHCLFile(path)
	if diag.HasErrors() {
		return nil, diag
	}
	var project Project
	ctx := &hcl.EvalContext{
		Functions: map[string]function.Function{
			"getenv": getenvFunc,
		},
	}
	if diag := gohcl.DecodeBody(f.Body, ctx, &project); diag.HasErrors() {
		return nil, diag
	}
	for _, env := range project.Envs {
		if env.Name == name {
			return env, nil
		}
	}
	return nil, fmt.Errorf("env %q not defined in project file", name)
}
