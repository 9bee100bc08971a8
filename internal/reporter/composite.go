package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) SourceDetails(summary SourceSummary) {
	for _, r := range c.reporters {
		r.SourceDetails(summary)
	}
}

func (c *CompositeReporter) DecodeStarted(totalFrames int) {
	for _, r := range c.reporters {
		r.DecodeStarted(totalFrames)
	}
}

func (c *CompositeReporter) DecodeProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.DecodeProgress(progress)
	}
}

func (c *CompositeReporter) DecodeComplete(summary DecodeOutcome) {
	for _, r := range c.reporters {
		r.DecodeComplete(summary)
	}
}

func (c *CompositeReporter) IndexComplete(summary IndexSummary) {
	for _, r := range c.reporters {
		r.IndexComplete(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) FileProgress(context FileProgressContext) {
	for _, r := range c.reporters {
		r.FileProgress(context)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
