/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

// Package errs defines the fatal error taxonomy of §7: FatalInit crashes
// before the sync loop starts, FatalRuntime crashes a running process.
// DecodeSkip and WriterLag are not errors in this taxonomy; they are
// recovered locally and never reach this package.
package errs

import "github.com/pkg/errors"

// FatalInit wraps an error that must abort startup: bad config, missing
// credentials, an inaccessible bucket. Always exits non-zero. cause may be
// nil, e.g. when the failure is "a required value is absent" rather than an
// underlying I/O error; a nil cause still produces a non-nil error.
func FatalInit(cause error, msg string) error {
	if cause == nil {
		return errors.New("fatal init: " + msg)
	}
	return errors.Wrap(cause, "fatal init: "+msg)
}

// FatalRuntime wraps an error that must abort a running process: a closed
// channel under a streaming writer, or a scanner or writer task that failed.
func FatalRuntime(cause error, msg string) error {
	if cause == nil {
		return errors.New("fatal runtime: " + msg)
	}
	return errors.Wrap(cause, "fatal runtime: "+msg)
}
