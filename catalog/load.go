package catalog

import (
	"encoding/json"
	"os"

	"github.com/datawarta/tanya/errors"
)

// LoadFile reads a catalog from a JSON file containing an array of
// CollectionDescriptor documents. Used by deployments whose collection set
// differs from the builtin one.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog file %s", path)
	}

	var descriptors []CollectionDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, errors.Wrapf(err, "failed to parse catalog file %s", path)
	}
	if len(descriptors) == 0 {
		return nil, errors.Newf("catalog file %s declares no collections", path)
	}

	return New(descriptors)
}
