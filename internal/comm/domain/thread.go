package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ComputeThreadID derives the conversation grouping key from the channel and
// the participating persons. It is a pure function of its inputs: the same
// people on the same channel always share one thread, independent of which
// party the message lands in, so renewals and re-engagements keep the
// history together.
func ComputeThreadID(channel Channel, personIDs []snowflake.ID) string {
	ids := make([]string, 0, len(personIDs))
	seen := make(map[snowflake.ID]struct{}, len(personIDs))
	for _, id := range personIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id.String())
	}
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(string(channel) + ":" + strings.Join(ids, ",")))
	return hex.EncodeToString(sum[:])
}
