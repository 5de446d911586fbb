package remote

// Actions understood by the endpoint. The parents.* family covers accounts
// of every role.
const (
	ActionStudentsList   = "students.list"
	ActionStudentsCreate = "students.create"
	ActionStudentsUpdate = "students.update"
	ActionStudentsDelete = "students.delete"

	ActionAttendanceList   = "attendance.list"
	ActionAttendanceCreate = "attendance.create"

	ActionAccountsList   = "parents.list"
	ActionAccountsCreate = "parents.create"
	ActionAccountsUpdate = "parents.update"
	ActionAccountsDelete = "parents.delete"

	ActionNotificationsList   = "announcements.list"
	ActionNotificationsCreate = "announcements.create"
	ActionNotificationsDelete = "announcements.delete"

	ActionReviewsList   = "behavior.list"
	ActionReviewsCreate = "behavior.create"
	ActionReviewsDelete = "behavior.delete"

	ActionClassesList   = "classes.list"
	ActionClassesUpdate = "classes.update"
)

// Actions lists every action in a stable order.
var Actions = []string{
	ActionStudentsList, ActionStudentsCreate, ActionStudentsUpdate, ActionStudentsDelete,
	ActionAttendanceList, ActionAttendanceCreate,
	ActionAccountsList, ActionAccountsCreate, ActionAccountsUpdate, ActionAccountsDelete,
	ActionNotificationsList, ActionNotificationsCreate, ActionNotificationsDelete,
	ActionReviewsList, ActionReviewsCreate, ActionReviewsDelete,
	ActionClassesList, ActionClassesUpdate,
}

// idPayload is the body of every *.delete action.
type idPayload struct {
	ID string `json:"id"`
}
