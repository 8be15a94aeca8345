package factory

// =============================================================================
// PRESETS
// =============================================================================

// DefaultStatusesJSON is the status catalogue of a 12-hour shift ward.
const DefaultStatusesJSON = `[
	{"code": "Д", "label": "Дневная смена", "hours": 12, "background": "#fff3c4", "text": "#5c4400"},
	{"code": "Н", "label": "Ночная смена", "hours": 12, "background": "#1f2a44", "text": "#ffffff"},
	{"code": "8", "label": "Восьмичасовая смена", "hours": 8, "background": "#dbeafe", "text": "#1e3a8a"},
	{"code": "4", "label": "Неполная смена", "hours": "4.5", "background": "#e0f2fe", "text": "#075985"},
	{"code": "В", "label": "Выходной", "hours": 0, "background": "#f3f4f6", "text": "#6b7280"},
	{"code": "О", "label": "Отпуск", "hours": 0, "background": "#dcfce7", "text": "#166534"},
	{"code": "Б", "label": "Больничный", "hours": 0, "background": "#fee2e2", "text": "#991b1b"}
]`

// DemoDepartmentJSON is a small ward used by the demo scenarios and the
// server when no department file is configured.
const DemoDepartmentJSON = `{
	"department": "demo",
	"statuses": ` + DefaultStatusesJSON + `,
	"employees": [
		{"id": "nurse-001", "name": "Иванова А.", "fullName": "Иванова Анна Сергеевна", "position": "Медсестра"},
		{"id": "nurse-002", "name": "Петрова М.", "fullName": "Петрова Мария Игоревна", "position": "Медсестра"},
		{"id": "nurse-003", "name": "Сидоров К.", "fullName": "Сидоров Кирилл Олегович", "position": "Медбрат"},
		{"id": "nurse-004", "name": "Кузнецова Е.", "fullName": "Кузнецова Елена Павловна", "position": "Старшая медсестра"},
		{"id": "aide-001", "name": "Орлов Д.", "fullName": "Орлов Дмитрий Андреевич", "position": "Санитар"}
	],
	"norms": {
		"1": 136, "2": 160, "3": 167, "4": 175, "5": 144, "6": 151,
		"7": 184, "8": 168, "9": 176, "10": 184, "11": 151, "12": 176
	}
}`
