package server

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice Tamper Check</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 3em auto; color: #222; }
#result { margin-top: 1.5em; padding: 1em; border-radius: 6px; display: none; }
.real { background: #e6f6e6; border: 1px solid #3a3; }
.tampered { background: #fbe6e6; border: 1px solid #c33; }
</style>
</head>
<body>
<h1>Invoice Tamper Check</h1>
<p>Upload an invoice image to score it for tampering.</p>
<form id="upload">
  <input type="file" name="image" accept="image/png,image/jpeg" required>
  <button type="submit">Check</button>
</form>
<div id="result"></div>
<script>
document.getElementById('upload').addEventListener('submit', async (e) => {
  e.preventDefault();
  const data = new FormData(e.target);
  const box = document.getElementById('result');
  box.style.display = 'block';
  box.className = '';
  box.textContent = 'Scoring...';
  try {
    const resp = await fetch('/predict', { method: 'POST', body: data });
    const body = await resp.json();
    if (!resp.ok) {
      box.textContent = 'Error: ' + (body.error || resp.statusText);
      return;
    }
    box.className = body.label;
    box.textContent = body.label.toUpperCase() + ' (confidence ' +
      (body.confidence * 100).toFixed(1) + '%)';
  } catch (err) {
    box.textContent = 'Request failed: ' + err;
  }
});
</script>
</body>
</html>
`
