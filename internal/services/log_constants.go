package services

const (
	LogActionUpload      = "PDF_UPLOAD"
	LogActionExtract     = "IMAGE_EXTRACT"
	LogActionAltTextCall = "OLLAMA_CALL_ALT_TEXT"
	LogActionAltTextRun  = "ALT_TEXT_RUN"
	LogActionExport      = "PDF_EXPORT"
	LogActionCleanup     = "CLEANUP"
	LogOutcomeSuccess    = "SUCCESS"
	LogOutcomeFail       = "FAIL"
)
