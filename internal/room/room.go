// Package room defines the canonical conversation identifier joining a
// job and the freelancer talking to its owner.
package room

import (
	"errors"
	"strings"
)

const (
	jobToken        = "job"
	freelancerToken = "freelancer"
	sep             = "_"
)

// ErrMalformed is returned when a string cannot be parsed as a room id.
var ErrMalformed = errors.New("malformed room id")

// ID identifies one job-owner/freelancer conversation. Exactly one ID
// exists per (JobID, Freelancer) pair.
type ID struct {
	JobID      string
	Freelancer string
}

// New builds an ID after validating its parts. JobID must not contain
// the separator character; job ids are UUIDs so in practice never do.
// Freelancer handles may contain underscores.
func New(jobID, freelancer string) (ID, error) {
	if jobID == "" || freelancer == "" {
		return ID{}, errors.New("job id and freelancer handle are required")
	}
	if strings.Contains(jobID, sep) {
		return ID{}, errors.New("job id must not contain underscores")
	}
	return ID{JobID: jobID, Freelancer: freelancer}, nil
}

// String encodes the ID as job_<jobId>_freelancer_<handle>.
func (id ID) String() string {
	return jobToken + sep + id.JobID + sep + freelancerToken + sep + id.Freelancer
}

// Parse decodes an encoded room id. The freelancer segment is the
// remainder of the string, so handles containing underscores round-trip.
func Parse(s string) (ID, error) {
	parts := strings.SplitN(s, sep, 4)
	if len(parts) != 4 {
		return ID{}, ErrMalformed
	}
	if parts[0] != jobToken || parts[2] != freelancerToken {
		return ID{}, ErrMalformed
	}
	if parts[1] == "" || parts[3] == "" {
		return ID{}, ErrMalformed
	}
	return ID{JobID: parts[1], Freelancer: parts[3]}, nil
}

// JobPrefix returns the encoded prefix shared by every room of a job,
// used for prefix scans over stored thread keys.
func JobPrefix(jobID string) string {
	return jobToken + sep + jobID + sep + freelancerToken + sep
}
