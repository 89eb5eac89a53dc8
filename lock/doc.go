/*
Package lock implements the state machine deciding which single tracked
person the vehicle follows.  A person is locked by raising a hand and stays
locked while they keep being tracked.  If they disappear for longer than
the disappearance timeout the lock is released and the vehicle is stopped.
*/
package lock
