package archive

// WriteObject is exported for testing
var WriteObject = writeObject
