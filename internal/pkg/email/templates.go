package email

const baseTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { margin: 0; font-family: Arial, sans-serif; background: #f4f5f7; color: #1f2933; }
.container { max-width: 600px; margin: 0 auto; padding: 32px 16px; }
.card { background: #ffffff; border-radius: 10px; padding: 28px; }
h2 { margin: 0 0 16px; font-size: 22px; }
p { font-size: 15px; line-height: 1.6; margin: 0 0 14px; }
.btn { display: inline-block; background: #0f9d58; color: #ffffff !important; text-decoration: none; padding: 12px 24px; border-radius: 6px; font-weight: bold; }
.muted { color: #7b8794; font-size: 12px; text-align: center; margin-top: 20px; }
table.summary td { padding: 4px 12px 4px 0; font-size: 15px; }
</style>
</head>
<body>
<div class="container">
<div class="card">{{template "content" .}}</div>
<p class="muted">Clube de Benefícios. Você recebeu este e-mail porque é assinante do clube.</p>
</div>
</body>
</html>`

const welcomeTemplate = `<h2>Bem-vindo(a), {{.Name}}!</h2>
<p>Sua assinatura do plano <strong>{{.PlanName}}</strong> está ativa até {{.PlanEndDate}}.</p>
<p>Apresente seu CPF nos parceiros do clube para usar seus pontos e cashback.</p>
<p><a class="btn" href="{{.DashboardURL}}">Ver meus benefícios</a></p>`

const expiringSoonTemplate = `<h2>Sua assinatura vence em 7 dias</h2>
<p>Olá {{.Name}}, seu plano <strong>{{.PlanName}}</strong> vence em {{.PlanEndDate}}.</p>
<p>Renove agora para não perder seus {{.Points}} pontos e o cashback acumulado.</p>
<p><a class="btn" href="{{.RenewURL}}">Renovar assinatura</a></p>`

const expiringTodayTemplate = `<h2>Sua assinatura vence hoje</h2>
<p>Olá {{.Name}}, hoje é o último dia do plano <strong>{{.PlanName}}</strong>.</p>
<p><a class="btn" href="{{.RenewURL}}">Renovar assinatura</a></p>`

const expiredTemplate = `<h2>Sua assinatura expirou</h2>
<p>Olá {{.Name}}, o plano <strong>{{.PlanName}}</strong> expirou em {{.PlanEndDate}}.</p>
<p>Seus benefícios ficam suspensos até a renovação.</p>
<p><a class="btn" href="{{.RenewURL}}">Assinar novamente</a></p>`

const saleConfirmedTemplate = `<h2>Compra confirmada em {{.PartnerName}}</h2>
<table class="summary">
<tr><td>Valor</td><td>R$ {{.Amount}}</td></tr>
<tr><td>Desconto</td><td>R$ {{.Discount}}</td></tr>
<tr><td>Pontos usados</td><td>{{.PointsUsed}}</td></tr>
<tr><td>Cashback gerado</td><td>R$ {{.CashbackGenerated}}</td></tr>
<tr><td><strong>Total pago</strong></td><td><strong>R$ {{.FinalAmount}}</strong></td></tr>
</table>`
