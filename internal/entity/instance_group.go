package entity

import (
	"fmt"
	"strings"
)

// InstanceGroup identifies a managed pool of premium stage workers.
type InstanceGroup struct {
	Zone string
	Name string
}

// ParseInstanceGroup reads the "<zone>/<name>" form used in configuration.
func ParseInstanceGroup(s string) (InstanceGroup, error) {
	zone, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || zone == "" || name == "" {
		return InstanceGroup{}, fmt.Errorf("instance group %q is not in zone/name form", s)
	}

	return InstanceGroup{Zone: zone, Name: name}, nil
}

func (g InstanceGroup) String() string {
	return g.Zone + "/" + g.Name
}
