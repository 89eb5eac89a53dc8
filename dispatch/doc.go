// Package dispatch transmits steering and drive commands to the vehicle
// while protecting its actuators.  Each channel has its own cooldown policy,
// at most one non-forced send may be in flight per channel, and forced
// sends used for emergency stops bypass every check.
package dispatch
