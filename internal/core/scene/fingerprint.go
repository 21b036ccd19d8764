package scene

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/scenestore/pkg/generic"
)

var digests = generic.NewPool(xxhash.New, (*xxhash.Digest).Reset)

// Fingerprint hashes the canonical JSON form of a scene. Two scenes with the
// same fingerprint are structurally equal for all practical purposes.
func Fingerprint(s Scene) (uint64, error) {
	d := digests.Get()
	defer digests.Put(d)
	if err := json.NewEncoder(d).Encode(s); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}
