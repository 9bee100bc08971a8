package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	SourceDetails(summary SourceSummary)
	DecodeStarted(totalFrames int)
	DecodeProgress(progress ProgressSnapshot)
	DecodeComplete(summary DecodeOutcome)
	IndexComplete(summary IndexSummary)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchStarted(info BatchStartInfo)
	FileProgress(context FileProgressContext)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) SourceDetails(SourceSummary)      {}
func (NullReporter) DecodeStarted(int)                {}
func (NullReporter) DecodeProgress(ProgressSnapshot)  {}
func (NullReporter) DecodeComplete(DecodeOutcome)     {}
func (NullReporter) IndexComplete(IndexSummary)       {}
func (NullReporter) Warning(string)                   {}
func (NullReporter) Error(ReporterError)              {}
func (NullReporter) OperationComplete(string)         {}
func (NullReporter) BatchStarted(BatchStartInfo)      {}
func (NullReporter) FileProgress(FileProgressContext) {}
func (NullReporter) Verbose(string)                   {}
