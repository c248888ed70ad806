package commands

import "strings"

var helpText = strings.Join([]string{
	"🧠 Comandos disponíveis:",
	"",
	"💬 Você pode usar linguagem natural, exemplos:",
	"  • \"salario 4500\"",
	"  • \"gastei 25 almoço #refeicao\"",
	"  • \"hora extra 2 2025-12-01\"",
	"  • \"folga 2025-12-02\"",
	"  • \"trabalhei hoje\"",
	"  • \"meta 6000\"",
	"",
	"💰 Finanças (sintaxe clássica):",
	"!salario VALOR",
	"!gasto VALOR DESCRIÇÃO [#categoria]",
	"!horaextra HORAS [AAAA-MM-DD]",
	"!folga [AAAA-MM-DD]",
	"!trabalhei [AAAA-MM-DD]",
	"!meta VALOR",
	"",
	"📊 Relatórios:",
	"!relatorio",
	"!relatoriomes AAAA-MM",
	"!bancofolgas",
	"!categorias",
	"!historico AAAA-MM AAAA-MM",
	"!previsao",
	"",
	"🔔 Configurações:",
	"!salario_mes AAAA-MM VALOR",
	"!alerta pct VALOR",
	"!alerta valor VALOR",
	"!notificar diaria|semanal sim|nao",
	"!limite_categoria CATEGORIA VALOR",
	"!limites",
	"!idioma pt|en",
	"!preferencias",
	"!hora_notificar HORA(0-23)",
	"!insight sim|nao",
	"!briefing sim|nao",
	"!briefing_hora HORA",
	"!addcripto SYMBOL",
	"!rmcripto SYMBOL",
	"!lista_cripto",
	"",
	"📤 Exportação:",
	"!exportcsv",
	"!exportpdf",
	"!exportar_sheets SHEETS_ID",
	"",
	"!ajuda",
	"!menu (versão com botões)",
	"",
	"❓ Se algo não for reconhecido, tente simplificar a frase ou usar o formato clássico.",
}, "\n")

// handleMenu returns a quick-reply keyboard; each button sends its
// command back through the normal dispatch path.
func handleMenu() Reply {
	return Reply{
		Text: "Menu rápido – escolha uma opção:",
		Keyboard: [][]string{
			{"!relatorio", "!bancofolgas"},
			{"!categorias", "!previsao"},
			{"!exportcsv", "!exportpdf"},
			{"!preferencias", "!ajuda"},
		},
	}
}
