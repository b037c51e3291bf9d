package agent

const structureSystemPrompt = `Você é um analista de editais de leilão de imóveis no Brasil.
Responda SOMENTE com um objeto JSON válido, sem texto adicional.`

const structureUserPrompt = `Analise o edital abaixo e devolva um JSON com o formato:
{
  "globalInfo": {
    "bank": "instituição vendedora ou comitente",
    "auctionDates": ["data e hora de cada praça/leilão"],
    "location": "local ou site do leilão",
    "auctioneer": "nome do leiloeiro",
    "editalNumber": "número do edital",
    "rulesSummary": "resumo das regras gerais (pagamento, comissão, prazos)"
  },
  "lots": [
    {"id": "número ou letra do lote", "text": "trecho LITERAL do edital que descreve o lote"}
  ]
}
Regras:
- "auctionDates" deve ser sempre uma lista de strings.
- "text" deve copiar o trecho exatamente como aparece no edital, sem resumir e sem alterar maiúsculas.
- Inclua todos os lotes, na ordem em que aparecem.

EDITAL:
`

const lotSystemPrompt = `Você extrai dados estruturados de um lote de leilão de imóvel.
Responda SOMENTE com um objeto JSON válido. Use null quando a informação não existir.`

const lotUserPrompt = `Extraia do texto do lote os campos abaixo e devolva um JSON:
{
  "lotNumber": "número do lote",
  "type": "Casa | Apartamento | Terreno | Sala Comercial | Galpão | ...",
  "city": "cidade", "state": "UF com 2 letras", "neighborhood": "bairro",
  "street": "logradouro", "number": "número", "complement": "complemento", "zipCode": "CEP",
  "address": "endereço completo",
  "privateArea": "área privativa", "totalArea": "área total", "landArea": "área do terreno",
  "bedrooms": "quartos", "parkingSpaces": "vagas",
  "price": "lance mínimo", "estimatedPrice": "valor de avaliação",
  "auctionPrices": [{"label": "1º Leilão", "value": "R$ ..."}],
  "discount": "desconto sobre a avaliação", "modality": "modalidade de venda",
  "matriculaNumber": "número da matrícula", "registryOffice": "cartório de registro",
  "municipalRegistry": "inscrição municipal",
  "owner": "proprietário, executado ou devedor fiduciante citado",
  "occupancyStatus": "Ocupado | Desocupado | Não informado",
  "debts": "débitos (IPTU, condomínio) e quem paga",
  "legalActions": ["ações judiciais citadas"],
  "paymentConditions": "condições de pagamento",
  "acceptsFinancing": true, "acceptsFgts": false,
  "description": "descrição do imóvel",
  "riskLevel": "alto | médio | baixo",
  "riskAnalysis": "justificativa curta do risco"
}
Critérios para "riskLevel":
- alto: imóvel ocupado, ação judicial que impeça a posse ou a transferência, dívidas maiores que o valor do imóvel ou problema estrutural grave.
- médio: dívidas pequenas, pendências de registro que podem ser resolvidas ou falta de informações importantes no edital.
- baixo: imóvel desocupado, documentação regular e sem dívidas relevantes.
`

const matriculaSystemPrompt = `Você é um especialista em registro de imóveis no Brasil e lê matrículas.
Responda SOMENTE com um objeto JSON válido.`

const matriculaUserPrompt = `Leia a matrícula abaixo e devolva um JSON com:
{
  "penhora_judicial": boolean,
  "alienacao_fiduciaria": boolean,
  "hipoteca": boolean,
  "indisponibilidade": boolean,
  "usufruto": boolean,
  "acao_judicial": boolean,
  "numero_contrato": string ou null,
  "credor": string ou null,
  "devedores_cpf_cnpj": string ou null,
  "data_primeiro_leilao": string ou null,
  "data_segundo_leilao": string ou null,
  "registro_alienacao_fiduciaria": string ou null,
  "averbacao_consolidacao": string ou null,
  "procedimento_extrajudicial": boolean
}
Marque true apenas quando houver registro ou averbação vigente; ônus cancelados contam como false.

MATRÍCULA:
`

const riskSystemPrompt = `Você avalia o risco jurídico de arrematar um imóvel em leilão.
Responda SOMENTE com um objeto JSON válido.`

const riskUserPrompt = `Com base nos dados do edital e da matrícula, devolva:
{"riskLevel": "high | medium | low", "riskAnalysis": "análise objetiva em português"}
A matrícula prevalece sobre a estimativa feita só com o edital. Critérios:
- high: ônus vigente na matrícula que trave a arrematação (penhora, indisponibilidade, usufruto, ação judicial), dívidas maiores que o lance ou imóvel ocupado.
- medium: alienação fiduciária ou hipoteca em procedimento regular de consolidação, dívidas pequenas em relação ao lance, pendências de registro que podem ser resolvidas ou dados faltando.
- low: matrícula sem ônus vigente, imóvel desocupado e sem dívidas relevantes.
Quanto maior a dívida em relação ao lance mínimo, maior o risco. Ônus cancelados ou baixados não contam.
`

const compareSystemPrompt = `Você compara as informações do edital com as da matrícula de um imóvel.
Responda SOMENTE com um objeto JSON válido.`

const compareUserPrompt = `Liste as divergências relevantes entre o edital e a matrícula. Verifique:
1. áreas (privativa, total, terreno);
2. datas dos leilões;
3. número da matrícula e cartório;
4. credor ou vendedor (comitente do edital e credor da matrícula);
5. situação de ocupação frente aos registros da matrícula;
6. proprietário ou devedor.
O valor de "field" deve ser o nome do campo em português (por exemplo "área privativa", "data do 1º leilão", "credor").
Ignore diferenças apenas de formatação (maiúsculas, acentos, abreviações, "m²" e "m2").
Formato:
{"discrepancies": [{"field": "campo", "editalValue": "valor no edital", "matriculaValue": "valor na matrícula", "severity": "high | medium | low", "explanation": "por que importa"}]}
Devolva uma lista vazia quando não houver divergências.
`
