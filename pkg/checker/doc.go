// Package checker runs one availability check over a list of usernames.
//
// A Checker filters the list through the username validator, schedules the
// valid names on a bounded worker pool, retries transient transport failures
// and appends every available name to the output file as soon as it is known.
//
//	c, err := checker.New(cfg, log)
//	if err != nil {
//		return err
//	}
//	summary, err := c.Run(ctx, names)
//
// Names that end in an error are left out of the output, whatever the reason.
package checker
