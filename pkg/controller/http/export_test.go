package http

// VerifySlackSignature is exported for testing
var VerifySlackSignature = verifySlackSignature
