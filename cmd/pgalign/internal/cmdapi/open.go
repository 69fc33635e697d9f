// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package cmdapi

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/pgalign/pgalign/sql/postgres"
	"github.com/pgalign/pgalign/sql/schema"
)

// Flags shared by the plan and apply commands.
type Flags struct {
	URL         string
	File        string
	Env         string
	LockTimeout string
}

// resolve fills unset flags from the project file environment, if one
// was selected. Explicit flags always win.
func (f *Flags) resolve() error {
	if f.Env == "" {
		return nil
	}
	env, err := LoadEnv(projectFileName, f.Env)
	if err != nil {
		return err
	}
	if f.URL == "" {
		f.URL = env.URL
	}
	if f.File == "" {
		f.File = env.Schema
	}
	if f.LockTimeout == "" {
		f.LockTimeout = env.LockTimeout
	}
	return nil
}

// openDiff connects to the database, parses the desired schema file,
// inspects the current state and returns the driver together with the
// changeset that aligns current with desired. The returned closer
// releases the connection.
func openDiff(ctx context.Context, f *Flags) (*postgres.Driver, []schema.Change, func() error, error) {
	if err := f.resolve(); err != nil {
		return nil, nil, nil, err
	}
	if f.URL == "" {
		return nil, nil, nil, fmt.Errorf(`required flag "url" not set`)
	}
	if f.File == "" {
		return nil, nil, nil, fmt.Errorf(`required flag "file" not set`)
	}
	var opts []postgres.Option
	if f.LockTimeout != "" {
		d, err := time.ParseDuration(f.LockTimeout)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parsing lock-timeout: %w", err)
		}
		opts = append(opts, postgres.WithLockTimeout(d))
	}
	buf, err := os.ReadFile(f.File)
	if err != nil {
		return nil, nil, nil, err
	}
	desired, err := postgres.ParseSchema(string(buf))
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := sql.Open("postgres", f.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	drv, err := postgres.Open(db, opts...)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	current, err := drv.InspectSchema(ctx, nil)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return drv, drv.SchemaDiff(current, desired), db.Close, nil
}
