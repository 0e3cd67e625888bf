package taskrunner

import (
	"fmt"
	"time"
)

const finishedLineTemplateConstant = "[run] Finished in %.3f seconds"

// RenderFinishedLine returns the line printed after a successful run.
func RenderFinishedLine(duration time.Duration) string {
	return fmt.Sprintf(finishedLineTemplateConstant, duration.Seconds())
}
