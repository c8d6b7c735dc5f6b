//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// Package fdlimit hands QuarantineFifo the file-descriptor allowance it needs
// to size its bounded capacity (spec §4.2.1: "capacity is
// min(ban_max_fds, sys_nofile * ban_ratio_pct / 100)").
package fdlimit

import "golang.org/x/sys/unix"

// Maximum retrieves the operating system's hard limit on file descriptors a
// single process may open.
func Maximum() (int, error) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, err
	}
	return int(limit.Max), nil
}

// Current retrieves this process' current soft limit on open file descriptors.
func Current() (int, error) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, err
	}
	return int(limit.Cur), nil
}

// Raise tries to raise the current soft limit on open file descriptors,
// capped at the hard limit, and returns the limit actually set.
func Raise(max uint64) (uint64, error) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, err
	}
	if limit.Cur >= max {
		return limit.Cur, nil
	}
	if max > limit.Max {
		max = limit.Max
	}
	limit.Cur = max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, err
	}
	return limit.Cur, nil
}
