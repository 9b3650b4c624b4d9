package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register transaction tasks
	RegisterHandler(SendTransactionNotificationTask.TaskID(), SendTransactionNotificationTask.HandleExecution)

	// Register reconciliation tasks
	RegisterHandler(ExpireStalePaymentsTask.TaskID(), ExpireStalePaymentsTask.HandleExecution)
}
