package webserver

import (
	"github.com/joho/godotenv"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/process"
)

// BuildEnvironment returns the variables added on top of the inherited
// environment: the optional env file first, then the three Catalina
// directory variables, which always win.
func BuildEnvironment(config ServerConfig, workspace *Workspace) ([]string, error) {
	var fileEnv []string
	if config.EnvironmentFile != "" {
		vars, err := godotenv.Read(config.EnvironmentFile)
		if err != nil {
			return nil, errors.NewIOError("failed to read environment file", err).
				WithReason(errors.ReasonStartFailed).
				WithContext("environment_file", config.EnvironmentFile)
		}
		fileEnv = process.EnvironmentFromMap(vars)
	}

	root := config.DistributionRoot()
	return process.MergeEnvironment(fileEnv, []string{
		EnvCatalinaHome + "=" + root,
		EnvCatalinaBase + "=" + root,
		EnvCatalinaTmpDir + "=" + workspace.Path,
	}), nil
}
