package model

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityID identifies a monitored target: the system aggregate or one
// process addressed as "pid:<n>".
type EntityID string

const SystemEntity EntityID = "system"

func ProcessEntity(pid int32) EntityID {
	return EntityID("pid:" + strconv.FormatInt(int64(pid), 10))
}

func (e EntityID) IsSystem() bool { return e == SystemEntity }

// PID returns the process ID when the entity addresses a process.
func (e EntityID) PID() (int32, bool) {
	raw, ok := strings.CutPrefix(string(e), "pid:")
	if !ok {
		return 0, false
	}
	pid, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return int32(pid), true
}

// ParseEntityID accepts "system", "pid:<n>" or a bare PID.
func ParseEntityID(raw string) (EntityID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == string(SystemEntity) {
		return SystemEntity, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "pid:")
	pid, err := strconv.ParseInt(trimmed, 10, 32)
	if err != nil || pid <= 0 {
		return "", fmt.Errorf("invalid entity %q", raw)
	}
	return ProcessEntity(int32(pid)), nil
}
