package usecase

// BuildReportBlocks is exported for testing
var BuildReportBlocks = buildReportBlocks

// FormatMappingSummary is exported for testing
var FormatMappingSummary = formatMappingSummary
