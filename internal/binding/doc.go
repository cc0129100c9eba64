// Package binding resolves panel configuration ids into bindings.
//
// A button-pair connector carries one configuration id; the row holds the
// settings of both sides. A display connector carries the id of a display
// configuration listing the device attributes shown on each line.
//
//	resolver := binding.NewResolver(binding.NewSQLiteRepository(db.DB))
//	rec := resolver.ResolveButtonSide(ctx, connector.ConfigID, protocol.Left)
//	switch t := rec.Target.(type) {
//	case binding.Device:
//	    // write rec.Attribute on t.ID
//	}
//
// Tables can be versioned in a YAML file and loaded at startup with
// LoadSeedFile and Seed.
package binding
