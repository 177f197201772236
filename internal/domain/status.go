package domain

import "time"

// DeriveStatus applies the automatic schedule overrides to a project's
// status. It is evaluated before every persist of a Project:
//
//  1. a project that has not started yet is always Planejada;
//  2. a project past its end date becomes Atrasada unless it is already
//     Concluída or Cancelada;
//  3. otherwise the supplied status stands.
func DeriveStatus(current ProjectStatus, start, end, now time.Time) ProjectStatus {
	if start.After(now) {
		return ProjectPlanned
	}
	if end.Before(now) && current != ProjectCompleted && current != ProjectCancelled {
		return ProjectDelayed
	}
	return current
}
