package i18n

var ptBRCatalog = NewCatalog("pt-BR", map[Code]string{
	CodeDiceMalformedTerm: "O termo {{.Term}} não é uma rolagem ou modificador válido",
	CodeDiceNoTermsFound:  "Nenhum termo de rolagem encontrado em {{.Expression}}",
	CodeDiceInvalidRange:  "O mínimo {{.Min}} é maior que o máximo {{.Max}}",
	CodeDiceInvalidCount:  "A quantidade de rolagens deve estar entre {{.Min}} e {{.Max}}",

	CodeHistoryInvalidFilter: "Filtro de histórico inválido: {{.Reason}}",
	CodeHistoryUnavailable:   "O histórico de rolagens não está habilitado",
})
