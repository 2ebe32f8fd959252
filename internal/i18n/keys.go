// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

// Template keys. Every supported language table must define all of them.
const (
	KeyLanguageName = "languageName"

	KeyAppName = "appName"
	KeyTagline = "tagline"

	KeyUploadTitle       = "uploadTitle"
	KeyUploadSubtitle    = "uploadSubtitle"
	KeyChooseDocument    = "chooseDocument"
	KeyPathPlaceholder   = "pathPlaceholder"
	KeyProcessing        = "processing"
	KeyUnsupportedFormat = "unsupportedFormat"
	KeyOpenFailed        = "openFailed"

	KeyNewDocument      = "newDocument"
	KeyInputPlaceholder = "inputPlaceholder"
	KeySend             = "send"
	KeyTyping           = "typing"
	KeyRoleUser         = "roleUser"
	KeyRoleAssistant    = "roleAssistant"

	KeyInitialAnalysis        = "initialAnalysis"
	KeyInitialAnalysisSummary = "initialAnalysisSummary"
	KeySimulatedAnswer        = "simulatedAnswer"
	KeyAnalysisFailed         = "analysisFailed"
	KeyAnswerFailed           = "answerFailed"

	KeyReasonTimeout     = "reasonTimeout"
	KeyReasonUnavailable = "reasonUnavailable"
	KeyReasonGeneric     = "reasonGeneric"

	KeyLanguageChanged = "languageChanged"
	KeyHelpUpload      = "helpUpload"
	KeyHelpChat        = "helpChat"
	KeyHelpRetry       = "helpRetry"

	KeyTranscriptTitle = "transcriptTitle"
	KeyExportSaved     = "exportSaved"
	KeyExportFailed    = "exportFailed"

	KeyReplWelcome        = "replWelcome"
	KeyReplDocumentPrompt = "replDocumentPrompt"
	KeyReplPrompt         = "replPrompt"
	KeyReplHelp           = "replHelp"
	KeyReplUnknownCommand = "replUnknownCommand"
)

// RequiredKeys lists every key the application renders.
var RequiredKeys = []string{
	KeyLanguageName,
	KeyAppName, KeyTagline,
	KeyUploadTitle, KeyUploadSubtitle, KeyChooseDocument, KeyPathPlaceholder,
	KeyProcessing, KeyUnsupportedFormat, KeyOpenFailed,
	KeyNewDocument, KeyInputPlaceholder, KeySend, KeyTyping, KeyRoleUser, KeyRoleAssistant,
	KeyInitialAnalysis, KeyInitialAnalysisSummary, KeySimulatedAnswer,
	KeyAnalysisFailed, KeyAnswerFailed,
	KeyReasonTimeout, KeyReasonUnavailable, KeyReasonGeneric,
	KeyLanguageChanged, KeyHelpUpload, KeyHelpChat, KeyHelpRetry,
	KeyTranscriptTitle, KeyExportSaved, KeyExportFailed,
	KeyReplWelcome, KeyReplDocumentPrompt, KeyReplPrompt, KeyReplHelp, KeyReplUnknownCommand,
}
