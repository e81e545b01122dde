package taxonomy

import (
	"sort"

	"github.com/alecbcs/spack-infrastructure/internal/logstore"
)

// CheckConsistency proves a bijection between the manifest id set and the
// artifact store's listing. Any orphan artifact (on disk, not in the
// manifest) or missing artifact (in the manifest, not on disk) is fatal; the
// returned IntegrityError enumerates every offender. Classification depends
// on this gate having passed.
func CheckConsistency(manifestIDs []int, store *logstore.Store) error {
	storeIDs, err := store.IDs()
	if err != nil {
		return err
	}

	inManifest := make(map[int]bool, len(manifestIDs))
	for _, id := range manifestIDs {
		inManifest[id] = true
	}
	onDisk := make(map[int]bool, len(storeIDs))
	for _, id := range storeIDs {
		onDisk[id] = true
	}

	orphans := make([]int, 0)
	for _, id := range storeIDs {
		if !inManifest[id] {
			orphans = append(orphans, id)
		}
	}
	missing := make([]int, 0)
	for _, id := range manifestIDs {
		if !onDisk[id] {
			missing = append(missing, id)
		}
	}

	if len(orphans) == 0 && len(missing) == 0 {
		return nil
	}
	sort.Ints(orphans)
	sort.Ints(missing)
	return &IntegrityError{Dir: store.Dir(), Orphans: orphans, Missing: missing}
}
