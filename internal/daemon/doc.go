// Package daemon hosts the long-running podium process: the HTTP upload and
// assessment API, the background pipeline workers, and the session sweeper.
// A file lock keeps a single instance per state directory.
package daemon
