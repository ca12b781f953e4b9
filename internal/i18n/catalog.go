package i18n

import (
	"strings"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

// Message keys used by the wizard and lookup views. Validators emit the
// err* keys; the presentation binder is the only place they become text.
const (
	KeyTitle          = "title"
	KeyStepDirection  = "step.direction"
	KeyStepDate       = "step.date"
	KeyStepStop       = "step.stop"
	KeyStepSchedule   = "step.schedule"
	KeyStepDetails    = "step.details"
	KeyStepConfirm    = "step.confirm"
	KeyOutbound       = "direction.outbound"
	KeyInbound        = "direction.inbound"
	KeyHotel          = "point.hotel"
	KeyIdentityHotel  = "identity.hotel_guest"
	KeyIdentityDining = "identity.dining_guest"
	KeyNoSchedules    = "schedule.none"
	KeyExpired        = "schedule.expired"
	KeyRequery        = "action.requery"
	KeyBack           = "action.back"
	KeyConfirmNotice  = "confirm.notice"
	KeyLookupHint     = "lookup.hint"
	KeyLookupEmpty    = "lookup.empty"
	KeyErrIdentity    = "errIdentity"
	KeyErrRoom        = "errRoom"
	KeyErrName        = "errName"
	KeyErrPhone       = "errPhone"
	KeyErrEmail       = "errEmail"
	KeyErrPassengers  = "errPassengers"
)

// Catalog is the immutable (language, key) -> text mapping with zh as the
// universal fallback. Status labels live in their own namespace so a status
// code can never collide with a message key.
type Catalog struct {
	messages map[models.Language]map[string]string
	statuses map[models.Language]map[string]string
}

// NewCatalog returns the built-in catalog covering zh, en, ja and ko.
func NewCatalog() *Catalog {
	return &Catalog{messages: messages, statuses: statusLabels}
}

// Resolve looks key up for lang, falls back to zh, and finally returns the
// key itself. It never fails; a raw key in the UI is the diagnostic signal
// for a missing entry.
func (c *Catalog) Resolve(lang models.Language, key string) string {
	if dict, ok := c.messages[lang]; ok {
		if text, ok := dict[key]; ok {
			return text
		}
	}
	if text, ok := c.messages[models.DefaultLanguage][key]; ok {
		return text
	}
	return key
}

// ResolveStatus resolves a booking status label with the same fallback
// contract as Resolve.
func (c *Catalog) ResolveStatus(lang models.Language, status string) string {
	if dict, ok := c.statuses[lang]; ok {
		if text, ok := dict[status]; ok {
			return text
		}
	}
	if text, ok := c.statuses[models.DefaultLanguage][status]; ok {
		return text
	}
	return status
}

// Rich reports whether resolved text carries the fixed line-break
// convention and must be rendered as multiple lines.
func Rich(text string) bool {
	return strings.Contains(text, "\n")
}

// Lines splits resolved text on the line-break convention. Plain text
// yields a single line.
func Lines(text string) []string {
	return strings.Split(text, "\n")
}

var messages = map[models.Language]map[string]string{
	models.LangZH: {
		KeyTitle:         "飯店接駁車預約",
		KeyStepDirection: "選擇方向",
		KeyStepDate:      "選擇日期",
		KeyStepStop:      "選擇站點",
		KeyStepSchedule:  "選擇班次",
		KeyStepDetails:   "乘客資料",
		KeyStepConfirm:   "預約完成",
		KeyOutbound:      "飯店出發",
		KeyInbound:       "返回飯店",
		KeyHotel:         "飯店",

		"stop.mrt":         "捷運站",
		"stop.nightmarket": "夜市",

		KeyIdentityHotel:  "住宿貴賓",
		KeyIdentityDining: "用餐貴賓",
		KeyNoSchedules:    "目前沒有可預約的班次",
		KeyExpired:        "班次已額滿或逾期，請重新查詢",
		KeyRequery:        "重新查詢班次",
		KeyBack:           "上一步",
		KeyConfirmNotice:  "預約成功！\n請於發車前十分鐘抵達上車地點",
		KeyLookupHint:     "請輸入訂單編號、電話或 Email 其中一項",
		KeyLookupEmpty:    "查無預約紀錄",
		KeyErrIdentity:    "請選擇乘客身分",
		KeyErrRoom:        "房號格式不正確（尚未入住請填 0000）",
		KeyErrName:        "請輸入姓名",
		KeyErrPhone:       "電話號碼格式不正確",
		KeyErrEmail:       "Email 格式不正確",
		KeyErrPassengers:  "人數須介於 1 至 4 且不可超過剩餘座位",
	},
	models.LangEN: {
		KeyTitle:         "Hotel Shuttle Reservation",
		KeyStepDirection: "Choose direction",
		KeyStepDate:      "Choose date",
		KeyStepStop:      "Choose stop",
		KeyStepSchedule:  "Choose departure",
		KeyStepDetails:   "Passenger details",
		KeyStepConfirm:   "Reservation complete",
		KeyOutbound:      "From the hotel",
		KeyInbound:       "Back to the hotel",
		KeyHotel:         "Hotel",

		"stop.mrt":         "MRT Station",
		"stop.nightmarket": "Night Market",

		KeyIdentityHotel:  "Hotel guest",
		KeyIdentityDining: "Dining guest",
		KeyNoSchedules:    "No departures available",
		KeyExpired:        "The departure is full or past the cutoff, please search again",
		KeyRequery:        "Search departures again",
		KeyBack:           "Back",
		KeyConfirmNotice:  "Reservation confirmed!\nPlease arrive ten minutes before departure",
		KeyLookupHint:     "Enter any one of booking ID, phone or email",
		KeyLookupEmpty:    "No reservations found",
		KeyErrIdentity:    "Please choose a guest type",
		KeyErrRoom:        "Invalid room number (use 0000 before check-in)",
		KeyErrName:        "Name is required",
		KeyErrPhone:       "Invalid phone number",
		KeyErrEmail:       "Invalid email address",
		KeyErrPassengers:  "Passengers must be 1 to 4 and within the remaining seats",
	},
	models.LangJA: {
		KeyTitle:         "ホテルシャトル予約",
		KeyStepDirection: "方向を選択",
		KeyStepDate:      "日付を選択",
		KeyStepStop:      "停留所を選択",
		KeyStepSchedule:  "便を選択",
		KeyStepDetails:   "乗客情報",
		KeyStepConfirm:   "予約完了",
		KeyOutbound:      "ホテル発",
		KeyInbound:       "ホテル行き",
		KeyHotel:         "ホテル",

		"stop.mrt":         "MRT駅",
		"stop.nightmarket": "ナイトマーケット",

		KeyIdentityHotel:  "ご宿泊のお客様",
		KeyIdentityDining: "ご飲食のお客様",
		KeyNoSchedules:    "予約可能な便はありません",
		KeyExpired:        "満席または締切済みです。再検索してください",
		KeyRequery:        "便を再検索",
		KeyBack:           "戻る",
		KeyConfirmNotice:  "予約が完了しました！\n出発の十分前に乗車場所へお越しください",
		KeyLookupHint:     "予約番号・電話番号・メールのいずれかを入力してください",
		KeyLookupEmpty:    "予約が見つかりません",
		KeyErrIdentity:    "お客様区分を選択してください",
		KeyErrRoom:        "部屋番号が正しくありません（チェックイン前は0000）",
		KeyErrName:        "お名前を入力してください",
		KeyErrPhone:       "電話番号が正しくありません",
		KeyErrEmail:       "メールアドレスが正しくありません",
		KeyErrPassengers:  "人数は1〜4名で、残席以内にしてください",
	},
	models.LangKO: {
		KeyTitle:         "호텔 셔틀 예약",
		KeyStepDirection: "방향 선택",
		KeyStepDate:      "날짜 선택",
		KeyStepStop:      "정류장 선택",
		KeyStepSchedule:  "출발편 선택",
		KeyStepDetails:   "탑승자 정보",
		KeyStepConfirm:   "예약 완료",
		KeyOutbound:      "호텔 출발",
		KeyInbound:       "호텔 도착",
		KeyHotel:         "호텔",

		"stop.mrt":         "MRT역",
		"stop.nightmarket": "야시장",

		KeyIdentityHotel:  "투숙 고객",
		KeyIdentityDining: "식사 고객",
		KeyNoSchedules:    "예약 가능한 편이 없습니다",
		KeyExpired:        "만석이거나 마감되었습니다. 다시 조회해 주세요",
		KeyRequery:        "출발편 다시 조회",
		KeyBack:           "이전",
		KeyConfirmNotice:  "예약이 완료되었습니다!\n출발 10분 전까지 탑승 장소에 도착해 주세요",
		KeyLookupHint:     "예약번호, 전화번호, 이메일 중 하나를 입력하세요",
		KeyLookupEmpty:    "예약 내역이 없습니다",
		KeyErrIdentity:    "고객 유형을 선택해 주세요",
		KeyErrRoom:        "객실 번호가 올바르지 않습니다 (체크인 전에는 0000)",
		KeyErrName:        "이름을 입력해 주세요",
		KeyErrPhone:       "전화번호가 올바르지 않습니다",
		KeyErrEmail:       "이메일 형식이 올바르지 않습니다",
		KeyErrPassengers:  "인원은 1~4명, 잔여 좌석 이내여야 합니다",
	},
}

var statusLabels = map[models.Language]map[string]string{
	models.LangZH: {
		models.StatusBooked:    "已預約",
		models.StatusCancelled: "已取消",
		models.StatusRejected:  "未成立",
		models.StatusBoarded:   "已搭乘",
		models.StatusExpired:   "已逾期",
	},
	models.LangEN: {
		models.StatusBooked:    "Booked",
		models.StatusCancelled: "Cancelled",
		models.StatusRejected:  "Rejected",
		models.StatusBoarded:   "Boarded",
		models.StatusExpired:   "Expired",
	},
	models.LangJA: {
		models.StatusBooked:    "予約済み",
		models.StatusCancelled: "キャンセル済み",
		models.StatusRejected:  "不成立",
		models.StatusBoarded:   "乗車済み",
		models.StatusExpired:   "期限切れ",
	},
	models.LangKO: {
		models.StatusBooked:    "예약 완료",
		models.StatusCancelled: "취소됨",
		models.StatusRejected:  "거절됨",
		models.StatusBoarded:   "탑승 완료",
		models.StatusExpired:   "만료됨",
	},
}
