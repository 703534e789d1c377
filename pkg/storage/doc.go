// Package storage manages the export output directory.
//
// Files are written to a temporary name in the same directory and renamed
// into place, so a crash never leaves a half-written export behind. Names
// that already exist get a numeric suffix instead of being overwritten.
//
// Usage:
//
//	manager, err := storage.NewManager("output")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path, err := manager.WriteFile("profiles.csv", func(w io.Writer) error {
//	    _, err := io.WriteString(w, "first_name,last_name\n")
//	    return err
//	})
package storage
