package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, botTokenSecret string) *Slack {
	return &Slack{
		botToken:       botToken,
		botTokenSecret: botTokenSecret,
	}
}

// NewGoogleForTest creates a Google config for testing purposes
func NewGoogleForTest(serviceAccountFile, serviceAccountSecret, subjectEmail string) *Google {
	return &Google{
		serviceAccountFile:   serviceAccountFile,
		serviceAccountSecret: serviceAccountSecret,
		subjectEmail:         subjectEmail,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewSyncFileForTest creates a SyncFile config for testing purposes
func NewSyncFileForTest(path string, dryRun *bool) *SyncFile {
	x := &SyncFile{path: path}
	if dryRun != nil {
		x.dryRun = *dryRun
		x.dryRunOverride = true
	}
	return x
}

// NewHistoryForTest creates a History config for testing purposes
func NewHistoryForTest(backend, projectID string) *History {
	return &History{
		backend:   backend,
		projectID: projectID,
	}
}

// NewArchiveForTest creates an Archive config for testing purposes
func NewArchiveForTest(bucket, prefix string) *Archive {
	return &Archive{bucket: bucket, prefix: prefix}
}

// TrimSecret is exported for testing
var TrimSecret = trimSecret

func NewServerForTest(addr, signingSecret string) *Server {
	return &Server{addr: addr, signingSecret: signingSecret}
}
