package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const referenceSuffixLen = 9

// NewReference synthesizes a unique payment reference for one confirmation
// attempt: TXN_<unix-millis>_<random suffix>.
func NewReference(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:referenceSuffixLen]
	return fmt.Sprintf("TXN_%d_%s", now.UnixMilli(), suffix)
}
