// Package sigtest replays AWS Signature Version 4 test-suite fixtures
// against the kmsign signing pipeline.
//
// A suite is a directory tree with one directory per case. Each case holds
// a <name>.req request file and any of <name>.creq, <name>.sts,
// <name>.authz, and <name>.sreq expectation files: the canonical request,
// the string to sign, the Authorization value, and the signed request.
// Run compares each produced artifact byte for byte and reports the offset
// of the first difference, which is usually all you need to find a
// canonicalization bug.
package sigtest
