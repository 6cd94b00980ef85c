package shim

// optionArity maps every bubblewrap option to the number of positional
// arguments it consumes. Skipping an option means skipping exactly this many
// following tokens; getting a count wrong would misread an option value as
// the start of the real command.
var optionArity = map[string]int{
	// switches
	"--help":                    0,
	"--version":                 0,
	"--level-prefix":            0,
	"--unshare-all":             0,
	"--share-net":               0,
	"--unshare-user":            0,
	"--unshare-user-try":        0,
	"--unshare-ipc":             0,
	"--unshare-pid":             0,
	"--unshare-net":             0,
	"--unshare-uts":             0,
	"--unshare-cgroup":          0,
	"--unshare-cgroup-try":      0,
	"--disable-userns":          0,
	"--assert-userns-disabled":  0,
	"--clearenv":                0,
	"--new-session":             0,
	"--die-with-parent":         0,
	"--as-pid-1":                0,

	// single value
	"--args":            1,
	"--argv0":           1,
	"--userns":          1,
	"--userns2":         1,
	"--pidns":           1,
	"--uid":             1,
	"--gid":             1,
	"--hostname":        1,
	"--chdir":           1,
	"--unsetenv":        1,
	"--lock-file":       1,
	"--sync-fd":         1,
	"--remount-ro":      1,
	"--overlay-src":     1,
	"--tmp-overlay":     1,
	"--ro-overlay":      1,
	"--exec-label":      1,
	"--file-label":      1,
	"--proc":            1,
	"--dev":             1,
	"--tmpfs":           1,
	"--mqueue":          1,
	"--dir":             1,
	"--seccomp":         1,
	"--add-seccomp-fd":  1,
	"--block-fd":        1,
	"--userns-block-fd": 1,
	"--info-fd":         1,
	"--json-status-fd":  1,
	"--cap-add":         1,
	"--cap-drop":        1,
	"--perms":           1,
	"--size":            1,

	// SRC DEST and VAR VALUE pairs
	"--setenv":       2,
	"--bind":         2,
	"--bind-try":     2,
	"--dev-bind":     2,
	"--dev-bind-try": 2,
	"--ro-bind":      2,
	"--ro-bind-try":  2,
	"--bind-fd":      2,
	"--ro-bind-fd":   2,
	"--file":         2,
	"--bind-data":    2,
	"--ro-bind-data": 2,
	"--symlink":      2,
	"--chmod":        2,

	// RWSRC WORKDIR DEST
	"--overlay": 3,
}
