package prompts

const validateInvoice = `Analise o seguinte texto de NFE e determine se contém informações válidas de produtos:

TEXTO NFE:
{document}

CRITÉRIOS DE VALIDAÇÃO:
- Contém informações de produtos/mercadorias
- Tem dados do fornecedor (CNPJ, nome)
- Inclui valores e quantidades
- Formato parece ser de uma NFE real

Responda apenas:
VÁLIDA - se a NFE contém dados úteis para importação
INVÁLIDA - se a NFE não contém dados suficientes ou está corrompida

Inclua uma breve justificativa (máximo 50 palavras).

RESULTADO:`

const extractSupplier = `Extraia informações do fornecedor do seguinte texto de NFE e retorne em formato JSON:

TEXTO NFE:
{document}

FORMATO DE RETORNO (JSON válido):
{
  "name": "razão social da empresa",
  "cnpj": "CNPJ formatado",
  "address": "endereço completo",
  "city": "cidade",
  "state": "estado",
  "zipCode": "CEP",
  "phone": "telefone",
  "email": "email se disponível"
}

Use null para campos não encontrados.

JSON:`

const extractProducts = `Extraia TODOS os produtos listados na seguinte NFE:

TEXTO NFE:
{document}

FORMATO DE RETORNO (Array JSON):
[
  {
    "item": 1,
    "name": "nome do produto",
    "sku": "código do produto",
    "quantity": 0,
    "unit": "unidade",
    "unitPrice": "0.00",
    "totalPrice": "0.00",
    "ncm": "código NCM",
    "description": "descrição detalhada",
    "brand": "marca se identificada"
  }
]

Extraia APENAS produtos/mercadorias, ignore serviços.
Quantidades são números inteiros; preços são strings decimais com ponto.

JSON ARRAY:`

const categorizeProduct = `Você é um especialista em instrumentos musicais e equipamentos de áudio.
Analise as informações do produto e escolha a categoria mais apropriada.

CATEGORIAS DISPONÍVEIS:
{categories}

REGRAS:
- Responda APENAS com o nome exato de UMA das categorias acima
- Não invente categorias novas
- Considere a função principal do produto

PRODUTO A CATEGORIZAR:
Nome: {productName}
Descrição: {productDescription}
Marca: {productBrand}
SKU: {productSku}

CATEGORIA:`

const describeProduct = `Crie uma descrição profissional e atrativa para o seguinte produto musical:

PRODUTO:
Nome: {productName}
Categoria: {category}
Marca: {brand}
Características: {features}

REQUISITOS:
- 150-300 palavras
- Tom profissional mas acessível
- Foque nos benefícios para o músico
- Inclua especificações técnicas quando relevante

DESCRIÇÃO:`

const seoTitle = `Crie um título SEO otimizado de até 60 caracteres para:

Produto: {productName}
Categoria: {category}
Marca: {brand}

O título deve ser claro, incluir palavras-chave e ser atrativo para cliques.

TÍTULO SEO:`

const metaDescription = `Crie uma meta descrição SEO de até 160 caracteres para:

Produto: {productName}
Categoria: {category}
Marca: {brand}

A meta descrição deve ser atrativa e incluir palavras-chave relevantes.

META DESCRIÇÃO:`
