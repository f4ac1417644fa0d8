package process

// Notes:
// - KillGroup: only PIDs that cannot name a live process are used. Zero and
//   negative values would otherwise target this test's own process group.

import "testing"

func TestKillGroup_IgnoresUnusablePIDs(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1, 999999999} {
		KillGroup(pid)
	}
}
