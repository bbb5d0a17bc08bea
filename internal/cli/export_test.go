package cli

// Exports for testing.

// RunSurrogatesList exposes runSurrogatesList.
var RunSurrogatesList = runSurrogatesList

// RunSurrogatesGet exposes runSurrogatesGet.
var RunSurrogatesGet = runSurrogatesGet

// RunSurrogatesCreate exposes runSurrogatesCreate.
var RunSurrogatesCreate = runSurrogatesCreate

// RunSurrogatesSearch exposes runSurrogatesSearch.
var RunSurrogatesSearch = runSurrogatesSearch

// RunImport exposes runImport.
var RunImport = runImport

// RunImportWatch exposes runImportWatch.
var RunImportWatch = runImportWatch

// RunNotificationsList exposes runNotificationsList.
var RunNotificationsList = runNotificationsList

// RunNotificationsRead exposes runNotificationsRead.
var RunNotificationsRead = runNotificationsRead

// RunNotificationsReadAll exposes runNotificationsReadAll.
var RunNotificationsReadAll = runNotificationsReadAll

// RunNotificationsWatch exposes runNotificationsWatch.
var RunNotificationsWatch = runNotificationsWatch

// RunTranscriptsUpload exposes runTranscriptsUpload.
var RunTranscriptsUpload = runTranscriptsUpload

// RunAnalyticsSummary exposes runAnalyticsSummary.
var RunAnalyticsSummary = runAnalyticsSummary

// RunAnalyticsExport exposes runAnalyticsExport.
var RunAnalyticsExport = runAnalyticsExport

// RunTemplatesValidate exposes runTemplatesValidate.
var RunTemplatesValidate = runTemplatesValidate

// RunTemplatesPush exposes runTemplatesPush.
var RunTemplatesPush = runTemplatesPush

// RunTemplatesList exposes runTemplatesList.
var RunTemplatesList = runTemplatesList

// RunConfigSet exposes runConfigSet.
var RunConfigSet = runConfigSet

// RunConfigGet exposes runConfigGet.
var RunConfigGet = runConfigGet

// RunConfigList exposes runConfigList.
var RunConfigList = runConfigList

// ParseID exposes parseID.
var ParseID = parseID

// ClampParallel exposes clampParallel.
var ClampParallel = clampParallel

// JoinArgs exposes joinArgs.
var JoinArgs = joinArgs

// RequireSession exposes requireSession.
var RequireSession = requireSession
