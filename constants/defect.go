package constants

const (
	DefectStatusNew         = "new"
	DefectStatusInProgress  = "in_progress"
	DefectStatusUnderReview = "under_review"
	DefectStatusClosed      = "closed"
	DefectStatusCancelled   = "cancelled"
)

const (
	DefectPriorityCritical = "critical"
	DefectPriorityHigh     = "high"
	DefectPriorityMedium   = "medium"
	DefectPriorityLow      = "low"
)

// History field names recorded in defect_histories.
const (
	HistoryFieldStatus             = "status"
	HistoryFieldPriority           = "priority"
	HistoryFieldPlannedDate        = "plannedDate"
	HistoryFieldAssignee           = "assignee"
	HistoryFieldAdditionalAssignee = "additionalAssignee"
)

var DefectStatuses = []string{
	DefectStatusNew,
	DefectStatusInProgress,
	DefectStatusUnderReview,
	DefectStatusClosed,
	DefectStatusCancelled,
}

var DefectPriorities = []string{
	DefectPriorityCritical,
	DefectPriorityHigh,
	DefectPriorityMedium,
	DefectPriorityLow,
}

var statusLabels = map[string]string{
	DefectStatusNew:         "Новая",
	DefectStatusInProgress:  "В работе",
	DefectStatusUnderReview: "На проверке",
	DefectStatusClosed:      "Закрыта",
	DefectStatusCancelled:   "Отменена",
}

var priorityLabels = map[string]string{
	DefectPriorityCritical: "Критический",
	DefectPriorityHigh:     "Высокий",
	DefectPriorityMedium:   "Средний",
	DefectPriorityLow:      "Низкий",
}

func ValidDefectStatus(s string) bool {
	_, ok := statusLabels[s]
	return ok
}

func ValidDefectPriority(p string) bool {
	_, ok := priorityLabels[p]
	return ok
}

func StatusLabel(s string) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s
}

func PriorityLabel(p string) string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return p
}
