package taxonomy

// Default returns the hand-maintained table of known failure signatures for
// Spack CI jobs. Category names and patterns are the established ones;
// renaming a category breaks downstream consumers of the export.
func Default() *Taxonomy {
	t, err := New([]Category{
		{"no_runner", mustPredicate("runner_missing")},
		{"job_log_missing", mustLiteral("ERROR: Got [0-9][0-9][0-9] for")},
		{"5XX", mustLiteral("HTTP Error 5[00|02|03]")},
		{"spack_root", mustLiteral("Error: SPACK_ROOT")},
		{"setup_env", mustLiteral("setup-env.sh: No such file or directory")},
		{"no_spec", mustLiteral("SpackError: No installed spec matches the hash")},
		{"build_error", mustSet(
			"error found in build log:",
			"errors found in build log:")},
		{"oom", mustSet(
			"command terminated with exit code 137",
			"ERROR: Job failed: exit code 137")},
		{"gitlab_down", mustLiteral("fatal: unable to access")},
		{"module_not_found", mustLiteral("ModuleNotFoundError: No module named")},
		{"artifacts", mustSet(
			"ERROR: Uploading artifacts",
			"ERROR: Downloading artifacts")},
		{"dial_backend", mustLiteral("error dialing backend")},
		{"pod_cleanup", mustLiteral("Error cleaning up pod")},
		{"pod_exec", mustLiteral("Error response from daemon: No such exec instance")},
		{"cmd_not_found", mustLiteral("Command exited with status 127")},
		{"db_mismatch", mustLiteral("Error: Expected database version")},
		{"db_match", mustLiteral("spack.store.MatchError:")},
		{"pod_timeout", mustLiteral("timed out waiting for pod to start")},
		{"docker_daemon", mustLiteral("Cannot connect to the Docker daemon")},
		{"rcp_failure", mustLiteral("error: RPC failed")},
		{"spack_error", mustLiteral("To reproduce this build locally, run:")},
		{"remote_not_found", mustSet(
			"fatal: Remote branch",
			"fatal: couldn't find remote ref")},
		{"pipeline_generation", mustLiteral("Error: Pipeline generation failed")},
		{"killed", mustLiteral("Killed")},
		{"remote_discontect", mustLiteral("http.client.RemoteDisconnected")},
		{"db_hash", mustLiteral("Error: Expected database index keyed by")},
		{"image_pull", mustSet(
			"Job failed (system failure): prepare environment: image pull failed",
			"ERROR: Job failed (system failure): failed to pull image")},
	})
	if err != nil {
		panic(err)
	}
	return t
}
