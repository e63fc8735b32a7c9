package email

// Email представляет структуру email сообщения
type Email struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}

// Recipient - адресат транзакционного письма
type Recipient struct {
	Email string
	Name  string
}

// FirstName - первое слово имени ("Jonas Schmedtmann" -> "Jonas")
func (r Recipient) FirstName() string {
	for i, ch := range r.Name {
		if ch == ' ' {
			return r.Name[:i]
		}
	}
	return r.Name
}
