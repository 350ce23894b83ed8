package rbac

// SubjectEmployee is the implicit role every active employee holds.
const SubjectEmployee = "employee"

const (
	ResourceLeave        = "leave"
	ResourceLeaveBalance = "leave_balance"
	ResourceLeaveType    = "leave_type"
	ResourceCalendar     = "calendar"
	ResourceRBAC         = "rbac"
	ResourceNotification = "notification"
)

const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionApprove = "approve"
	ActionCancel  = "cancel"
	ActionManage  = "manage"
)

// DefaultPolicies are (role, resource, action) rules. Approval rights are
// granted broadly here; whether an employee may act on a given request is
// decided by the routing chain.
var DefaultPolicies = [][]string{
	{SubjectEmployee, ResourceLeave, ActionRead},
	{SubjectEmployee, ResourceLeave, ActionCreate},
	{SubjectEmployee, ResourceLeave, ActionUpdate},
	{SubjectEmployee, ResourceLeave, ActionApprove},
	{SubjectEmployee, ResourceLeave, ActionCancel},
	{SubjectEmployee, ResourceLeaveBalance, ActionRead},
	{SubjectEmployee, ResourceLeaveType, ActionRead},
	{SubjectEmployee, ResourceCalendar, ActionRead},
	{SubjectEmployee, ResourceRBAC, ActionRead},
	{SubjectEmployee, ResourceNotification, ActionRead},
	{SubjectEmployee, ResourceNotification, ActionUpdate},

	{"hr_admin", ResourceLeaveBalance, ActionManage},
	{"hr_admin", ResourceLeaveType, ActionManage},
	{"hr_admin", ResourceCalendar, ActionManage},

	{"hr_manager", ResourceLeaveBalance, ActionManage},
	{"hr_manager", ResourceCalendar, ActionManage},
}
